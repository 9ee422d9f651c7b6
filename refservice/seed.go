package refservice

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

const avatarURLFormat = "https://cypress-realworld-app-svgs.s3.amazonaws.com/t%d.svg"

// seedNamespace scopes the name-based UUIDs of seeded users, so the same seed always produces
// the same ids.
var seedNamespace = uuid.MustParse("6f1c2a0e-3b1d-4c55-9a43-7b9a1f0c2d11")

// seedEpoch is the creation time stamped on every seeded user.
var seedEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// generateSeedUsers returns count users generated from seed. The same arguments always give
// the same users. Every user gets passwordHash.
func generateSeedUsers(seed int64, count int, passwordHash string) []userRecord {
	faker := gofakeit.New(seed)
	users := make([]userRecord, 0, count)
	taken := make(map[string]bool)

	for i := 0; len(users) < count; i++ {
		first := faker.FirstName()
		last := faker.LastName()
		username := fmt.Sprintf("%s%d", strings.ReplaceAll(first, " ", ""), faker.Number(10, 99))
		if taken[strings.ToLower(username)] {
			continue
		}
		taken[strings.ToLower(username)] = true

		id := uuid.NewSHA1(seedNamespace, []byte(username)).String()
		createdAt := seedEpoch.Add(time.Duration(i) * time.Hour)
		users = append(users, userRecord{
			User: servicedef.User{
				ID:          id,
				UUID:        uuid.NewSHA1(seedNamespace, []byte(id)).String(),
				FirstName:   first,
				LastName:    last,
				Username:    username,
				Email:       strings.ToLower(fmt.Sprintf("%s.%s%d@%s", first, last, i, faker.DomainName())),
				PhoneNumber: fmt.Sprintf("%s-%03d-%04d", faker.Numerify("###"), 100+i, faker.Number(0, 9999)),
				Avatar:      fmt.Sprintf(avatarURLFormat, faker.Number(1, 60)),
				Balance:     int64(faker.Number(0, 200000)),
				CreatedAt:   &createdAt,
				ModifiedAt:  &createdAt,
			},
			PasswordHash: passwordHash,
		})
	}
	return users
}
