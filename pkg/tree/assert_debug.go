//go:build treedebug

package tree

const debugAssertions = true
