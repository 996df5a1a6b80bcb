// The main package for the reddit-archiver executable.
package main

import (
	"github.com/JakeFAU/reddit-archiver/cmd"
)

func main() {
	cmd.Execute()
}
