package models

// TokenPair is the response of user/generate-token/.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// PassPhraseRequest is the body of user/generate-token/.
type PassPhraseRequest struct {
	PassPhrase string `json:"pass_phrase"`
}

// PassPhraseResponse is the response of user/generate-pass-phrase/.
type PassPhraseResponse struct {
	PassPhrase string `json:"pass_phrase"`
}
