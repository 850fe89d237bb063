/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ssargent/arraydb/cmd/arraydb/cmd"

func main() {
	cmd.Execute()
}
