package backend

import (
	"fmt"
	"math/rand"
)

const (
	portMin = 9000
	portMax = 65535
)

// RandomPort returns a pseudo-random port in [9000, 65535). The port is not
// reserved; a concurrent process may grab it between the pick and the bind,
// in which case Start reports the listen error and the caller retries with
// a fresh pick.
func RandomPort() int {
	return portMin + rand.Intn(portMax-portMin)
}

// URL formats the base URL for a plain-HTTP listener address.
func URL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d", host, port)
}
