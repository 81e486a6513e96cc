// Package style provides the privileged stylesheet injector used by
// style.add.
package style
