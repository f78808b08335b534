package report

import "regexp"

// TestNG signatures embed the owning class as an instance fragment, e.g.
// "testBar(String)[pri:0, instance:com.acme.FooTest@1a2b]".
var instanceRe = regexp.MustCompile(`instance:([^@]+)@`)

// classFromSignature extracts the fully qualified class name from a TestNG
// method signature, or "" when the instance fragment is absent.
func classFromSignature(sig string) string {
	m := instanceRe.FindStringSubmatch(sig)
	if m == nil {
		return ""
	}
	return m[1]
}
