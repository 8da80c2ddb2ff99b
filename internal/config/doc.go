// Package config provides configuration structures and utilities for dirmirror.
// It defines where the remote listing lives, the credentials sent with every
// request, and how the local mirror is written.
package config
