// Package testsupport provides fakes, polling and golden-file helpers shared by the
// package tests.
package testsupport
