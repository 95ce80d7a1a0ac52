package main

import "sitedocs/internal/app/server"

func main() {
	server.Run()
}
