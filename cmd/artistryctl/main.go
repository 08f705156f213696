// AngelaMos | 2026
// main.go

package main

import "github.com/carterperez-dev/artistry/cmd/artistryctl/commands"

func main() {
	commands.Execute()
}
