package mirror

import "strings"

// SplitPathAndFilename returns the directory part of a file reference,
// relative to rootURL.
//
// ref is normally a RelativePath such as "Data/sub/doc.txt". The root prefix
// is stripped only when ref explicitly starts with rootURL; relative values
// are never rewritten. The result keeps its trailing "/" and is empty for
// files directly below the root:
//
//	SplitPathAndFilename(root, root+"Data/my_file_data") // "Data/"
//	SplitPathAndFilename(root, "my_file")                // ""
func SplitPathAndFilename(rootURL, ref string) string {
	rel := ref
	if rootURL != "" && strings.HasPrefix(ref, rootURL) {
		rel = ref[len(rootURL):]
	}
	i := strings.LastIndex(rel, "/")
	if i < 0 {
		return ""
	}
	return rel[:i+1]
}

// LocalFilename returns the final "/"-delimited segment of fileURL, verbatim.
func LocalFilename(fileURL string) string {
	return fileURL[strings.LastIndex(fileURL, "/")+1:]
}
