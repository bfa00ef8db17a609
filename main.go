package main

import "github.com/shahdolbazaar/marketplace-go-app/internal/cli"

func main() {
	cli.Execute()
}
