package utils

import "github.com/microcosm-cc/bluemonday"

// htmlPolicy allows the usual user-generated-content markup (links, lists,
// basic formatting) and strips everything executable.
var htmlPolicy = bluemonday.UGCPolicy()

// Sanitize strips unsafe HTML from user-submitted text such as product
// descriptions and forum bodies before it is persisted.
func Sanitize(input string) string {
	return htmlPolicy.Sanitize(input)
}
