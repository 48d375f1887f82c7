package main

import "github.com/user/isoaudit/cmd"

func main() {
	cmd.Execute()
}
