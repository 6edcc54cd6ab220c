//go:build !libjxl || !cgo

package jxl

func defaultBackend() backend { return headerBackend{} }
