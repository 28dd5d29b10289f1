package store

import (
	"fmt"
	"strings"

	"github.com/vesta-fin/vesta/internal/model"
)

// Default category ids. The tree is flat; ids above are reserved for
// user-created categories and the uncategorized leaves.
const (
	CatAuto = iota + 1
	CatFuel
	CatAccessories
	CatEntertainment
	CatAlcohol
	CatHealth
	CatMedical
	CatTransport
	CatChildren
	CatHome
	CatPets
	CatRestaurants
	CatBooks
	CatBeauty
	CatFood
	CatEducation
	CatClothing
	CatCommunication
	CatSports
	CatElectronics
	CatFastfood
	CatHobby
	CatFlowers
	CatDigital
	CatJewelry
	CatEcosystem
	CatFinancial
	CatSalary
	CatTransfers
)

// DefaultCategories returns the seed category tree for a new data
// directory.
func DefaultCategories() []model.Category {
	expense := func(id int, name string) model.Category {
		return model.Category{ID: id, Name: name, Type: model.CategoryExpense}
	}
	return []model.Category{
		expense(CatAuto, "Auto"),
		expense(CatFuel, "Fuel"),
		expense(CatAccessories, "Accessories"),
		expense(CatEntertainment, "Entertainment"),
		expense(CatAlcohol, "Alcohol"),
		expense(CatHealth, "Health"),
		expense(CatMedical, "Medical"),
		expense(CatTransport, "Transport"),
		expense(CatChildren, "Children"),
		expense(CatHome, "Home"),
		expense(CatPets, "Pets"),
		expense(CatRestaurants, "Restaurants"),
		expense(CatBooks, "Books"),
		expense(CatBeauty, "Beauty"),
		expense(CatFood, "Food"),
		expense(CatEducation, "Education"),
		expense(CatClothing, "Clothing"),
		expense(CatCommunication, "Communication"),
		expense(CatSports, "Sports"),
		expense(CatElectronics, "Electronics"),
		expense(CatFastfood, "Fastfood"),
		expense(CatHobby, "Hobby"),
		expense(CatFlowers, "Flowers"),
		expense(CatDigital, "Digital"),
		expense(CatJewelry, "Jewelry"),
		expense(CatEcosystem, "Ecosystem"),
		expense(CatFinancial, "Financial"),
		{ID: CatSalary, Name: "Salary", Type: model.CategoryIncome},
		{ID: CatTransfers, Name: "Transfers", Type: model.CategoryTransfer},
	}
}

// DefaultRules returns the seed rule table: MCC rules first, then
// merchant-name patterns. Row order is precedence within each stage.
func DefaultRules() []model.Rule {
	var rules []model.Rule

	mcc := func(categoryID int, codes ...string) {
		for _, code := range codes {
			rules = append(rules, model.Rule{MCC: code, CategoryID: categoryID})
		}
	}
	mccRange := func(categoryID, from, to int) {
		for i := from; i <= to; i++ {
			rules = append(rules, model.Rule{MCC: fmt.Sprintf("%04d", i), CategoryID: categoryID})
		}
	}
	pattern := func(categoryID int, words ...string) {
		rules = append(rules, model.Rule{Pattern: strings.Join(words, "|"), CategoryID: categoryID})
	}

	mcc(CatAuto, "4784", "5013", "5271", "5511", "5521", "5531", "5532", "5533",
		"5551", "5561", "5571", "5592", "5598", "5599", "7511", "7523", "7531",
		"7534", "7535", "7538", "7542", "7549")
	mcc(CatFuel, "5172", "5541", "5542", "5552", "5983", "9752")
	mcc(CatAccessories, "5948", "7251", "7631")
	mcc(CatEntertainment, "5733", "5945", "5970", "5971", "5972", "7032", "7829",
		"7832", "7841", "7911", "7922", "7929", "7932", "7933", "7941", "7991",
		"7992", "7996", "7997", "7998", "7999")
	mcc(CatAlcohol, "5921")
	mcc(CatHealth, "5122", "5912", "5975", "5976", "8044")
	mcc(CatMedical, "4119", "5047", "8011", "8021", "8031", "8041", "8042",
		"8043", "8049", "8050", "8062", "8071", "8099")
	mccRange(CatTransport, 3351, 3398)
	mccRange(CatTransport, 3400, 3410)
	mccRange(CatTransport, 3412, 3423)
	mccRange(CatTransport, 3425, 3439)
	mccRange(CatTransport, 4011, 4112)
	mcc(CatTransport, "3441", "4121", "4131", "4729", "4789", "7512", "7513", "7519")
	mcc(CatChildren, "5641")
	mcc(CatHome, "0780", "1520", "1711", "1731", "1740", "1750", "1761", "1771",
		"2842", "5021", "5039", "5046", "5051", "5072", "5074", "5085", "5198",
		"5200", "5211", "5231", "5251", "5261", "5712", "5713", "5714", "5718",
		"5719", "5950", "5996", "7217", "7641", "7692", "7699")
	mcc(CatPets, "0742", "5995")
	mcc(CatRestaurants, "5811", "5812", "5813")
	mcc(CatBooks, "2741", "5111", "5192", "5942", "5943", "5994")
	mcc(CatBeauty, "5977", "7230", "7297", "7298")
	mcc(CatFood, "5262", "5300", "5310", "5311", "5331", "5399", "5411", "5422",
		"5441", "5451", "5462", "5499", "5964", "7278", "9751")
	mcc(CatEducation, "8211", "8220", "8241", "8244", "8249", "8299", "8351")
	mcc(CatClothing, "5137", "5139", "5611", "5621", "5631", "5651", "5661",
		"5681", "5691", "5699", "5931", "7296")
	mcc(CatCommunication, "4813", "4814", "4815", "4816", "4821", "4899", "7372", "7375")
	mcc(CatSports, "5655", "5940", "5941")
	mcc(CatElectronics, "5044", "5045", "5065", "5722", "5732", "5978", "5997",
		"7379", "7622", "7623", "7629")
	mcc(CatFastfood, "5814")
	mcc(CatHobby, "5946", "5947", "5949", "5998", "7221", "7395", "7993", "7994")
	mcc(CatFlowers, "5193", "5992")
	mcc(CatDigital, "5734", "5735", "5815", "5816", "5817", "5818")
	mcc(CatJewelry, "5094", "5944")
	mcc(CatEcosystem, "3990", "3991")

	pattern(CatMedical, "gorzdrav", "аптека", "pharmacy", "медицин", "больниц",
		"клиника", "hospital", "доктор", "врач", "лекарств", "поликлиника")
	pattern(CatFood, "magnit", "магнит", "perekrestok", "перекресток",
		"пятерочка", "pyaterochka", "ашан", "auchan", "дикси", "dixi",
		"лента", "lenta", "супермаркет", "продукт", "grocery")
	pattern(CatFuel, "lukoil", "лукойл", "rosneft", "роснефть", "газпром",
		"gazprom", "shell", "азс", "заправк")
	pattern(CatRestaurants, "mcdonalds", "макдональдс", "kfc", "burger",
		"бургер", "pizza", "пицца", "кафе", "cafe", "ресторан", "restaurant", "столов")
	pattern(CatTransport, "metro", "метро", "такси", "taxi", "яндекс", "yandex",
		"uber", "автобус", "поезд", "train")
	pattern(CatEntertainment, "кино", "cinema", "театр", "theatre", "музей",
		"museum", "развлечен", "entertainment", "спорт", "sport")
	pattern(CatClothing, "zara", "h&m", "uniqlo", "adidas", "nike", "одежд",
		"clothes", "обув", "shoes", "fashion")
	pattern(CatFinancial, "банк", "bank", "сбп", "sbp", "перевод", "transfer",
		"пополнение", "снятие", "комиссия", "commission")

	return rules
}
