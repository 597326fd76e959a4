package main

import "github.com/zjrosen/stimseq/cmd"

func main() {
	cmd.Execute()
}
