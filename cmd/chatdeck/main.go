// Command chatdeck is a terminal chat client for OpenAI-compatible model
// providers.
package main

import "github.com/diogo/chatdeck/internal/commands"

func main() {
	commands.Execute()
}
