// Command wingnotes edits a dual-column notebook from the terminal.
package main

func main() {
	Execute()
}
