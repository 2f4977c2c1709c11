package main

import "github.com/architeacher/filterspec/services/svc-devices/internal/runtime"

func main() {
	runtime.New().Run()
}
