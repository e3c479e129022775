package main

import (
	_ "github.com/nextdhcp/nextpan/core"
	"github.com/nextdhcp/nextpan/panmain"
)

func main() {
	panmain.Run()
}
