package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/uvm/cmd/uvm-boot/app"
)

func main() {
	app.NewApp().Run()
}
