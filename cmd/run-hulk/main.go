// cmd/run-hulk/main.go
package main

import (
	"runhulk/internal/app"
	"runhulk/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
