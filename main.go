package main

import "complaintqa/internal/app"

func main() {
	app.Main()
}
