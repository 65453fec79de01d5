package main

import "github.com/henriquecf/i18n-parser/internal/cli"

func main() {
	cli.Execute()
}
