package main

import "github.com/iksnae/chat-timeline/cmd"

func main() {
	cmd.Execute()
}
