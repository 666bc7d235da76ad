package main

import "github.com/afslabs/afs-chat/cmd"

func main() {
	cmd.Execute()
}
