package validation

// profileSchema is the structural contract for a submitted merchant profile.
// Cross-field invariants are checked in code after the schema passes.
const profileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "level": {"type": "string", "enum": ["low", "medium", "high"]},
    "money": {"type": "number"},
    "nonNegative": {"type": "number", "minimum": 0},
    "percent": {"type": "number", "minimum": 0, "maximum": 100},
    "country": {"type": "string", "pattern": "^[A-Z]{2}$"}
  },
  "required": [
    "businessName", "businessType", "industry", "businessAge", "legalStructure", "registrationStatus",
    "monthlyRevenue", "monthlyExpenses", "cashFlow", "balanceSheet", "fundIntention",
    "riskFactors", "marketContext", "complianceProfile"
  ],
  "properties": {
    "businessName": {"type": "string", "minLength": 1, "maxLength": 200},
    "businessType": {"type": "string", "enum": ["sole-proprietor", "partnership", "corporation", "llc", "other"]},
    "industry": {"type": "string", "minLength": 1},
    "businessAge": {"type": "integer", "minimum": 0},
    "legalStructure": {"type": "string", "enum": ["formal", "informal"]},
    "registrationStatus": {"type": "string", "enum": ["registered", "unregistered"]},
    "monthlyRevenue": {
      "type": "object",
      "required": ["current", "average", "growthRate", "seasonality"],
      "properties": {
        "current": {"$ref": "#/definitions/nonNegative"},
        "average": {"$ref": "#/definitions/nonNegative"},
        "growthRate": {"type": "number"},
        "seasonality": {"$ref": "#/definitions/level"}
      }
    },
    "monthlyExpenses": {
      "type": "object",
      "required": ["fixed", "variable", "total"],
      "properties": {
        "fixed": {"$ref": "#/definitions/nonNegative"},
        "variable": {"$ref": "#/definitions/nonNegative"},
        "total": {"$ref": "#/definitions/nonNegative"}
      }
    },
    "cashFlow": {
      "type": "object",
      "required": ["operating", "free", "workingCapital"],
      "properties": {
        "operating": {"$ref": "#/definitions/money"},
        "free": {"$ref": "#/definitions/money"},
        "workingCapital": {"$ref": "#/definitions/nonNegative"}
      }
    },
    "balanceSheet": {
      "type": "object",
      "required": ["totalAssets", "currentAssets", "totalLiabilities", "currentLiabilities", "equity"],
      "properties": {
        "totalAssets": {"$ref": "#/definitions/nonNegative"},
        "currentAssets": {"$ref": "#/definitions/nonNegative"},
        "totalLiabilities": {"$ref": "#/definitions/nonNegative"},
        "currentLiabilities": {"$ref": "#/definitions/nonNegative"},
        "equity": {"$ref": "#/definitions/money"}
      }
    },
    "fundIntention": {
      "type": "object",
      "required": ["purpose", "amount", "duration", "repaymentCapacity", "collateral"],
      "properties": {
        "purpose": {"type": "string", "enum": ["working_capital", "equipment", "expansion", "inventory", "other"]},
        "amount": {
          "type": "object",
          "required": ["requested", "minimum", "maximum"],
          "properties": {
            "requested": {"$ref": "#/definitions/nonNegative"},
            "minimum": {"$ref": "#/definitions/nonNegative"},
            "maximum": {"$ref": "#/definitions/nonNegative"}
          }
        },
        "duration": {
          "type": "object",
          "required": ["preferred", "minimum", "maximum"],
          "properties": {
            "preferred": {"type": "integer", "minimum": 1, "maximum": 60},
            "minimum": {"type": "integer", "minimum": 1, "maximum": 60},
            "maximum": {"type": "integer", "minimum": 1, "maximum": 60}
          }
        },
        "repaymentCapacity": {
          "type": "object",
          "required": ["monthlyCapacity", "percentageOfRevenue"],
          "properties": {
            "monthlyCapacity": {"$ref": "#/definitions/nonNegative"},
            "percentageOfRevenue": {"$ref": "#/definitions/percent"}
          }
        },
        "collateral": {
          "type": "object",
          "required": ["available"],
          "properties": {
            "available": {"type": "boolean"},
            "type": {"type": "string", "enum": ["", "equipment", "real_estate", "inventory", "crypto", "other"]},
            "value": {"$ref": "#/definitions/nonNegative"},
            "liquidity": {"type": "string", "enum": ["", "low", "medium", "high"]}
          }
        }
      }
    },
    "riskFactors": {
      "type": "object",
      "required": ["marketRisk", "operationalRisk", "financialRisk", "economicSensitivity", "regulatoryRisk", "currencyRisk", "paymentHistory"],
      "properties": {
        "marketRisk": {"$ref": "#/definitions/level"},
        "operationalRisk": {"$ref": "#/definitions/level"},
        "financialRisk": {"$ref": "#/definitions/level"},
        "economicSensitivity": {"$ref": "#/definitions/level"},
        "regulatoryRisk": {"$ref": "#/definitions/level"},
        "currencyRisk": {"$ref": "#/definitions/level"},
        "paymentHistory": {
          "type": "object",
          "required": ["onTime", "late", "default"],
          "properties": {
            "onTime": {"$ref": "#/definitions/percent"},
            "late": {"$ref": "#/definitions/percent"},
            "default": {"$ref": "#/definitions/percent"}
          }
        },
        "industryRisks": {"type": ["array", "null"], "items": {"type": "string"}}
      }
    },
    "marketContext": {
      "type": "object",
      "required": ["primaryMarket", "marketSize", "competitionLevel", "marketGrowth"],
      "properties": {
        "primaryMarket": {"$ref": "#/definitions/country"},
        "operatingRegions": {"type": ["array", "null"], "items": {"$ref": "#/definitions/country"}, "uniqueItems": true},
        "marketSize": {"type": "string", "enum": ["micro", "small", "medium", "large"]},
        "competitionLevel": {"$ref": "#/definitions/level"},
        "marketGrowth": {"type": "string", "enum": ["declining", "stable", "growing", "rapidly_growing"]}
      }
    },
    "complianceProfile": {
      "type": "object",
      "required": ["kycLevel", "amlRisk", "jurisdiction"],
      "properties": {
        "kycLevel": {"type": "string", "enum": ["basic", "enhanced", "comprehensive"]},
        "amlRisk": {"$ref": "#/definitions/level"},
        "jurisdiction": {"$ref": "#/definitions/country"}
      }
    }
  }
}`
