// Package validation applies strict schemas to decoded JSON payloads using
// github.com/santhosh-tekuri/jsonschema/v5 (draft 2020-12 by default).
//
// Failures are reported as *Error values listing one Issue per violated
// keyword with the instance pointer, a dotted field path and the validator
// message:
//
//	err := validation.Validate(schema.ObjectSchema(task), payload)
//	if verr, ok := validation.AsError(err); ok {
//		for _, issue := range verr.Issues {
//			log.Printf("%s: %s", issue.Field, issue.Message)
//		}
//	}
package validation
