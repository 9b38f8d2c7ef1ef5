package processing

// Artifact is one entry of the processing service's heterogeneous output
// list. Type and Format tag what the service produced; ProductID and
// ProductFolder are only present when the service already placed files
// under the product tree itself.
type Artifact struct {
	Type          string `json:"type"`
	Format        string `json:"format"`
	URL           string `json:"url"`
	ProductID     string `json:"product_id,omitempty"`
	ProductFolder string `json:"product_folder,omitempty"`
}

const (
	artifactTypeModel = "3d_model"
	modelFormatGLB    = "glb"
)

// UsableModel reports whether the artifact is a 3D model in the accepted
// binary format.
func (a Artifact) UsableModel() bool {
	return a.Type == artifactTypeModel && a.Format == modelFormatGLB
}

// FirstUsableModel picks the first usable model artifact. Additional
// usable models are ignored, not an error.
func FirstUsableModel(artifacts []Artifact) (Artifact, bool) {
	for _, a := range artifacts {
		if a.UsableModel() {
			return a, true
		}
	}
	return Artifact{}, false
}

// CurrentModelInfo is the short-lived record of the model the upload flow
// is currently holding. ProductID and ProductFolder are carried through
// from the artifact and may be empty, in which case the store assigns a
// fresh identity on save.
type CurrentModelInfo struct {
	Name          string `json:"name"`
	ModelURL      string `json:"modelUrl"`
	ProductID     string `json:"productId,omitempty"`
	ProductFolder string `json:"productFolder,omitempty"`
}
