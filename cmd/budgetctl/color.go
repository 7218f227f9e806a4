package main

import "github.com/fatih/color"

var (
	boldRed     = color.New(color.FgRed, color.Bold).SprintFunc()
	brightGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	bold        = color.New(color.Bold).SprintFunc()
)

// signed colours an amount by whether the budget is in surplus.
func signed(v float64, text string) string {
	if v < 0 {
		return boldRed(text)
	}
	return brightGreen(text)
}
