package common

// Kind is the category of media a batch item holds. It decides which conversion branch runs.
type Kind string

const KindImage Kind = "image"
const KindAudio Kind = "audio"

var AllKinds = []Kind{KindImage, KindAudio}

func (k Kind) Valid() bool {
	return k == KindImage || k == KindAudio
}
