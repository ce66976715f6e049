package main

import "github.com/jmehdipour/ratebook/cmd"

func main() {
	cmd.Execute()
}
