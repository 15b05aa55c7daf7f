package main

import "github.com/shaharia-lab/courier/cmd"

func main() {
	cmd.Execute()
}
