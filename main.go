package main

import "github.com/Mohsinsiddi/neondash/cmd"

func main() {
	cmd.Execute()
}
