package threads

import (
	"errors"
	"fmt"
)

// MaxCarouselImages is the most images one post may carry.
const MaxCarouselImages = 4

var ErrTooManyImages = fmt.Errorf("threads: a post carries at most %d images", MaxCarouselImages)

var ErrEmptyPost = errors.New("threads: post has neither text nor images")

// PublishRequest is one of TextOnly, SingleImage or Carousel.
type PublishRequest interface {
	isPublishRequest()
}

type TextOnly struct {
	Text string
}

type SingleImage struct {
	Text     string
	ImageURL string
}

// Carousel holds 2 to 4 images, published in the given order.
type Carousel struct {
	Text      string
	ImageURLs []string
}

func (TextOnly) isPublishRequest()    {}
func (SingleImage) isPublishRequest() {}
func (Carousel) isPublishRequest()    {}

// NewPublishRequest picks the variant matching the number of images.
func NewPublishRequest(text string, images []string) (PublishRequest, error) {
	switch n := len(images); {
	case n == 0:
		if text == "" {
			return nil, ErrEmptyPost
		}
		return TextOnly{Text: text}, nil
	case n == 1:
		return SingleImage{Text: text, ImageURL: images[0]}, nil
	case n <= MaxCarouselImages:
		urls := make([]string, n)
		copy(urls, images)
		return Carousel{Text: text, ImageURLs: urls}, nil
	default:
		return nil, ErrTooManyImages
	}
}
