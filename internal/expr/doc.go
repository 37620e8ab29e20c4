// Package expr evaluates Markdoc-style expressions with HCL.
//
// Markdoc writes variables as $name. Prepare strips those sigils and protects
// literal template sequences in quoted strings, after which the text is a
// valid HCL expression evaluated against an hcl.EvalContext whose variables
// are converted with ToCty.
package expr
