package main

import "github.com/expotoworld/expotoworld/backend/catalog-admin-service/cmd/catalogctl/commands"

func main() {
	commands.Execute()
}
