package models

// FoodType is the kind of surplus food being donated
type FoodType string

const (
	FoodTypeCookedRice       FoodType = "cooked_rice"
	FoodTypeCookedVegetables FoodType = "cooked_vegetables"
	FoodTypeBreadRoti        FoodType = "bread_roti"
	FoodTypeDalCurry         FoodType = "dal_curry"
	FoodTypePackagedSnacks   FoodType = "packaged_snacks"
	FoodTypeFruits           FoodType = "fruits"
	FoodTypeRawVegetables    FoodType = "raw_vegetables"
	FoodTypeMixedMeal        FoodType = "mixed_meal"
	FoodTypeOther            FoodType = "other"
)

var foodTypeCategories = map[FoodType]string{
	FoodTypeCookedRice:       CategoryCooked,
	FoodTypeCookedVegetables: CategoryCooked,
	FoodTypeBreadRoti:        CategoryCooked,
	FoodTypeDalCurry:         CategoryCooked,
	FoodTypeMixedMeal:        CategoryCooked,
	FoodTypePackagedSnacks:   CategoryPackaged,
	FoodTypeFruits:           CategoryFruits,
	FoodTypeRawVegetables:    CategoryRaw,
	FoodTypeOther:            "",
}

// FoodTypes returns every known food type in display order
func FoodTypes() []FoodType {
	return []FoodType{
		FoodTypeCookedRice,
		FoodTypeCookedVegetables,
		FoodTypeBreadRoti,
		FoodTypeDalCurry,
		FoodTypePackagedSnacks,
		FoodTypeFruits,
		FoodTypeRawVegetables,
		FoodTypeMixedMeal,
		FoodTypeOther,
	}
}

// IsValid reports whether f is a known food type
func (f FoodType) IsValid() bool {
	_, ok := foodTypeCategories[f]
	return ok
}

// Category returns the acceptance category for f, or "" when it has none
func (f FoodType) Category() string {
	return foodTypeCategories[f]
}
