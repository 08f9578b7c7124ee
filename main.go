package main

import "github.com/opsdesk/ops-management/cmd"

func main() {
	cmd.Execute()
}
