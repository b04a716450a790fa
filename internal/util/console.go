package util

import (
	"bufio"
	"os"
	"strings"

	"github.com/fatih/color"
)

var Red = color.New(color.FgRed)
var RedBold = color.New(color.FgRed).Add(color.Bold)
var Yellow = color.New(color.FgYellow)
var Cyan = color.New(color.FgCyan)
var CyanBold = color.New(color.FgCyan).Add(color.Bold)
var Green = color.New(color.FgGreen)
var GreenBold = color.New(color.FgGreen).Add(color.Bold)

var stdin = bufio.NewScanner(os.Stdin)

func Scanline() string {
	if stdin.Scan() {
		return stdin.Text()
	}
	color.Red("\nInterrupted")
	os.Exit(1)
	return ""
}

// ScanlineTrim : Scans input and trims
func ScanlineTrim() string {
	return strings.TrimSpace(Scanline())
}

// Prompt prints a question and returns the trimmed answer, or fallback when
// the answer is empty.
func Prompt(question, fallback string) string {
	if fallback != "" {
		Cyan.Printf("%s (default %s) : ", question, fallback)
	} else {
		Cyan.Printf("%s : ", question)
	}
	answer := ScanlineTrim()
	if answer == "" {
		return fallback
	}
	return answer
}

// Confirm asks a yes/no question.
func Confirm(question string) bool {
	CyanBold.Printf("%s (y/n): ", question)
	response := ScanlineTrim()
	return response == "y" || response == "Y" || response == "yes"
}
