// Command bagr creates, validates, and updates BagIt bags on the local file
// system.
//
//	bagr bag -b <dir>          turn a directory holding data/ into a bag
//	bagr validate -b <dir>     check a bag against its manifests
//	bagr rebag -b <dir>        update the manifests after the payload changed
//	bagr info -b <dir>         print the tags of a bag
//	bagr history -b <dir>      list past operations on a bag
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:]))
}
