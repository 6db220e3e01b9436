// Package cmd contains the command-line utilities that train, serve and apply taxi fare models. It also contains
// supporting code shared by these utilities, such as reading the run configuration and reporting errors.
package cmd
