package service

import (
	"fmt"
	"time"

	"github.com/maheshrc27/creatoraide/internal/models"
)

// bestTimes holds the engagement peaks per platform as hours of the day, ascending.
var bestTimes = map[string][]int{
	models.PlatformTiktok:    {9, 12, 19, 21},
	models.PlatformInstagram: {11, 13, 19},
	models.PlatformYoutube:   {14, 16, 20},
	models.PlatformFacebook:  {9, 13, 15},
	models.PlatformTwitter:   {8, 12, 17},
}

// BestTimesForPlatform returns the recommended posting hours (0-23) for a platform.
func BestTimesForPlatform(platform string) ([]int, error) {
	hours, ok := bestTimes[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}
	return append([]int(nil), hours...), nil
}

// nextBestTime moves t forward to the first recommended hour at or after it,
// measured in loc. It rolls over to the next day when today's hours have passed.
func nextBestTime(t time.Time, loc *time.Location, platform string) (time.Time, error) {
	hours, err := BestTimesForPlatform(platform)
	if err != nil {
		return time.Time{}, err
	}
	local := t.In(loc)
	for _, h := range hours {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), h, 0, 0, 0, loc)
		if !candidate.Before(local) {
			return candidate.UTC(), nil
		}
	}
	next := time.Date(local.Year(), local.Month(), local.Day()+1, hours[0], 0, 0, 0, loc)
	return next.UTC(), nil
}
