package locate

import "path/filepath"

// Build system tags returned by DetectBuildSystem.
const (
	BuildMaven  = "maven"
	BuildGradle = "gradle"
)

// DetectBuildSystem inspects the repository root for build tool marker files.
// Returns ("", false) when neither Maven nor Gradle is present; callers treat
// that as a skip, not a failure.
func DetectBuildSystem(repoPath string) (string, bool) {
	if fileExists(filepath.Join(repoPath, "pom.xml")) {
		return BuildMaven, true
	}
	for _, name := range []string{"build.gradle", "build.gradle.kts"} {
		if fileExists(filepath.Join(repoPath, name)) {
			return BuildGradle, true
		}
	}
	return "", false
}
