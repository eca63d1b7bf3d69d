package main

import "github.com/dbsmedya/accmirror/cmd/accmirror/cmd"

func main() {
	cmd.Execute()
}
