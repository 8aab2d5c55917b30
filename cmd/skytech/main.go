package main

import (
	"github.com/siliconsmith/skytech/cmd/skytech/cmd"
)

func main() {
	cmd.Execute()
}
