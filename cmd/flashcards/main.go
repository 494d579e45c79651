package main

import "github.com/lehmann314159/flashcards/cmd"

func main() {
	cmd.Execute()
}
