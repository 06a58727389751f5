package main

import "github.com/SAP-F-2025/classroom-service/cmd"

func main() {
	cmd.Execute()
}
