package main

import (
	"os"

	"horse.fit/techbrief/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
