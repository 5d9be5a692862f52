// Command yaccattack runs secret-extraction trials against a simulated
// compressed cache and reports the attack's cost.
package main

import "github.com/tebeka/atexit"

func main() {
	Execute()
	atexit.Exit(0)
}
