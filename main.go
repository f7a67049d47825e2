package main

import "github.com/sge-engine/sgetool/cmd"

func main() {
	cmd.Execute()
}
