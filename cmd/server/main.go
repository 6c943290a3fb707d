package main

import "phone-store/internal/adapters/cli"

func main() {
	cli.Execute()
}
