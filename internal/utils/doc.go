// Package utils provides a collection of helper functions and utilities for common tasks,
// such as filename sanitization, extension detection, directory checks, and content type validation.
// It is designed to simplify repetitive operations and ensure consistency across the application.
package utils
